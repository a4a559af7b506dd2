package bootstrap

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// Loadenv loads .env from the working directory if there is one. A missing
// file is not an error; system environment variables are used instead.
func Loadenv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
