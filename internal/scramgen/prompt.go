package scramgen

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// PromptPassword reads a password from the user's terminal without echo.
// When generating a verifier the password is asked for twice; a mismatch
// is an error.
func PromptPassword(w io.Writer, confirm bool) ([]byte, error) {
	pw, err := promptOnce(w, "Enter password: ")
	if err != nil {
		return nil, err
	}
	if !confirm {
		return pw, nil
	}

	again, err := promptOnce(w, "Repeat password: ")
	if err != nil {
		return nil, err
	}
	if string(pw) != string(again) {
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

func promptOnce(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	return pw, err
}
