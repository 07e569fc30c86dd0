package version

// Current is the scorer version reported in the X-Scorer-Version response
// header and by the version command.
const Current = "1.0.0"
