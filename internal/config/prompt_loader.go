package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles loads extractor prompt overrides from external files.
// Inline overrides (systemPrompt/userPrompt) take precedence over files.
func (c *Config) loadPromptsFromFiles() error {
	gemini := &c.Extract.Gemini

	if gemini.SystemPrompt == "" && gemini.SystemPromptFile != "" {
		content, err := loadPromptFromFile(gemini.SystemPromptFile, "system")
		if err != nil {
			return err
		}
		gemini.SystemPrompt = content
	}

	if gemini.UserPrompt == "" && gemini.UserPromptFile != "" {
		content, err := loadPromptFromFile(gemini.UserPromptFile, "user")
		if err != nil {
			return err
		}
		gemini.UserPrompt = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
		}
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)",
		promptType, absPath, len(trimmedContent))

	return trimmedContent, nil
}
