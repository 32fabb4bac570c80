package envelope

import (
	"bytes"
	"fmt"
	"syscall"

	"golang.org/x/term"
)

// MinPasswordLen is the minimum accepted password length at the prompts.
// Payloads encrypted with shorter passwords still decrypt.
const MinPasswordLen = 8

// PromptPassword reads a password from the terminal with echo disabled.
func PromptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("password read failed: %w", err)
	}
	if len(password) < MinPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	return string(password), nil
}

// PromptNewPassword prompts twice and rejects mismatches, for operations that
// set a password rather than supply an existing one.
func PromptNewPassword() (string, error) {
	password, err := PromptPassword("\n🔑 Enter password (min 8 chars): ")
	if err != nil {
		return "", err
	}
	confirm, err := PromptPassword("🔑 Confirm password: ")
	if err != nil {
		return "", err
	}
	if !bytes.Equal([]byte(password), []byte(confirm)) {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
