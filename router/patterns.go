package router

import (
	"strings"
	"unicode"
)

// Category names the intent a direct command was recognised as.
type Category string

const (
	CategoryNone     Category = ""
	CategoryListing  Category = "listing"
	CategoryRead     Category = "read"
	CategoryWrite    Category = "write"
	CategoryTerminal Category = "terminal"
	CategoryPath     Category = "path"
)

const (
	listingConfidence = 0.95
	patternConfidence = 0.9
	pathConfidence    = 0.8
	// pathHeuristicMaxWords bounds how long a question may be for a bare
	// path mention to count as a direct command.
	pathHeuristicMaxWords = 10
)

type patternSet struct {
	category   Category
	confidence float64
	phrases    []string
}

// Evaluated in order; the first set with a matching phrase wins.
var patternSets = []patternSet{
	{
		category:   CategoryListing,
		confidence: listingConfidence,
		phrases: []string{
			"list files", "list the files", "list all files", "list all the files",
			"list directory", "list the directory", "list the contents of",
			"list contents of", "show files in", "show me the files",
			"show the files", "what files are in", "what files are there",
			"what's in the directory", "what is in the directory",
			"what's in the folder", "what is in the folder", "ls ",
		},
	},
	{
		category:   CategoryRead,
		confidence: patternConfidence,
		phrases: []string{
			"what's in the file", "what is in the file", "read the file",
			"read file", "show me the file", "show the file",
			"show the contents of", "show me the contents of", "open the file",
			"display the file", "print the file", "cat ",
		},
	},
	{
		category:   CategoryWrite,
		confidence: patternConfidence,
		phrases: []string{
			"write to the file", "write to file", "write a file", "write into",
			"create a file", "create file", "create a new file", "save to",
			"save this to", "save it to", "append to", "make a file",
		},
	},
	{
		category:   CategoryTerminal,
		confidence: patternConfidence,
		phrases: []string{
			"run the command", "run command", "run this command",
			"execute the command", "execute command", "execute this command",
			"in the terminal", "in terminal", "shell command",
			"terminal command",
		},
	},
}

// DetectDirectCommand reports whether question reads as a direct file or
// terminal request. Matching is case-insensitive search for fixed phrases
// starting at a word boundary, followed by a path heuristic for short
// questions.
func DetectDirectCommand(question string) (Classification, bool) {
	q := strings.ToLower(question)
	padded := " " + strings.Join(strings.Fields(q), " ") + " "
	for _, set := range patternSets {
		for _, phrase := range set.phrases {
			if strings.Contains(padded, " "+phrase) {
				return direct(set.category, set.confidence), true
			}
		}
	}

	words := strings.Fields(q)
	if len(words) < pathHeuristicMaxWords {
		for _, w := range words {
			if isPathLike(w) {
				return direct(CategoryPath, pathConfidence), true
			}
		}
	}
	return Classification{}, false
}

func direct(category Category, confidence float64) Classification {
	return Classification{
		IsComplex:       false,
		Confidence:      confidence,
		IsDirectCommand: true,
		Category:        category,
	}
}

// isPathLike accepts words containing a path separator, like "/tmp" or
// "src\main.go", and file names with a short extension, like "notes.txt".
func isPathLike(word string) bool {
	w := strings.TrimFunc(word, func(r rune) bool {
		return strings.ContainsRune("\"'`,;?!()[]", r)
	})
	w = strings.TrimRight(w, ".")
	if len(w) < 2 {
		return false
	}
	if strings.ContainsAny(w, `/\`) {
		return true
	}

	dot := strings.LastIndex(w, ".")
	if dot <= 0 || dot == len(w)-1 {
		return false
	}
	ext := w[dot+1:]
	if len(ext) > 5 || !unicode.IsLetter(rune(ext[0])) {
		return false
	}
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
