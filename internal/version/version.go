package version

// Current is the release version stamped into builds and surfaced by the
// --version flag. Bump on release.
const Current = "0.1.0"
