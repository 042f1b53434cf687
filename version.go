package main

// Version is stamped by the release build.
var Version = "1.0.0"
