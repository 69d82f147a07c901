package version

// Version is the current release of the crawler.
var Version = "0.3.0"
