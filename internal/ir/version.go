package ir

// Version constants for the graph format and analyzer.
const (
	// GraphVersion is the graph document schema version.
	GraphVersion = "1"

	// AnalyzerVersion is the slayout analyzer version.
	AnalyzerVersion = "0.1.0"
)
