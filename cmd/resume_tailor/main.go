// Package main provides the entry point for the resume tailor CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_tailor",
	Short: "Tailor a resume to a job posting and compile it to PDF",
	Long:  "Resume Tailor rewrites a resume against a job posting with an LLM, inserts the result into a LaTeX template, and compiles it to a PDF, recovering from common LaTeX failures along the way.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
