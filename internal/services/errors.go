package services

import "errors"

var (
	ErrNoFilesProvided     = errors.New("no files uploaded, please select files to upload")
	ErrBatchTooLarge       = errors.New("too many files in one upload")
	ErrUnsupportedFileType = errors.New("only files with the following extensions are allowed: jpeg, jpg, png, gif")
	ErrFileTooLarge        = errors.New("file exceeds the maximum upload size")
	ErrDuplicateDetected   = errors.New("photo has already been uploaded")
	ErrUnsafeContent       = errors.New("the image contains inappropriate content")
	ErrInvalidImage        = errors.New("image could not be decoded")
	ErrUpstream            = errors.New("upstream service error")
	ErrNotFound            = errors.New("photo not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// FileError ties a batch failure to the file that caused it.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return "error processing file " + e.File + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
