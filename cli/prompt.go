package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// Asker asks a yes/no question and reports the answer.
type Asker func(label string, in io.Reader, out io.Writer) (bool, error)

// PromptConfirm asks a yes/no question on in and out. A "no" answer or an
// interrupted prompt reports false without an error.
func PromptConfirm(label string, in io.Reader, out io.Writer) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     io.NopCloser(in),
		Stdout:    nopWriteCloser{out},
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// confirmOverwrite asks before replacing an existing file. Missing files and
// non-terminal input never prompt.
func confirmOverwrite(path string, in io.Reader, out io.Writer, ask Asker) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	if !interactive(in) {
		return true, nil
	}

	return ask(fmt.Sprintf("Overwrite %s", path), in, out)
}

func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
