package cmd

// Version is set at build time via
// -ldflags "-X github.com/TLSLime/Puppeteer/cmd.Version=...".
var Version = "0.1.0"
