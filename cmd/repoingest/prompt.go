package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"repoingest/internal/repoid"
)

// promptRepoInput interactively asks for the input type, the reference or
// path, and an optional credential. Local paths are re-asked until they
// resolve to an existing directory.
func promptRepoInput(reader *bufio.Reader) (string, string) {
	fmt.Println("\nSelect input type:")
	fmt.Println("  [1] Git URL (e.g., https://github.com/owner/repo.git)")
	fmt.Println("  [2] Local repo path (e.g., ~/projects/myrepo)")

	choice := readLine(reader, "Enter 1 or 2: ")
	for choice != "1" && choice != "2" {
		choice = readLine(reader, "Please enter 1 or 2: ")
	}

	if choice == "1" {
		url := readLine(reader, "Enter Git repo URL: ")
		token := readLine(reader, "Enter GitHub token (leave blank if not needed): ")
		return url, token
	}

	for {
		path := repoid.NormalizeLocalPath(readLine(reader, "Enter local repo path: "))
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, ""
		}
		fmt.Printf("Path not found or not a directory: %s. Try again.\n\n", path)
	}
}

// readLine prints a prompt and returns the trimmed input line.
func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
