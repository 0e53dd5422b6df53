package main

import "github.com/fatih/color"

// Status tag renderers for per-asset report lines.
var (
	tagOK      = color.New(color.FgGreen).SprintFunc()
	tagMissing = color.New(color.FgRed, color.Bold).SprintFunc()
	tagUnknown = color.New(color.FgYellow).SprintFunc()
)
