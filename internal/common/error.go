package common

import "fmt"

var (
	ErrPostNotFoundError     = fmt.Errorf("post not found")
	ErrAccessForbiddenError  = fmt.Errorf("access forbidden")
	ErrNoPostsFoundError     = fmt.Errorf("no posts found")
	ErrInvalidPostID         = fmt.Errorf("invalid post id")
	ErrScanHasAlreadyStarted = fmt.Errorf("scan process has already started")
	ErrFFmpegNotFoundError   = fmt.Errorf("ffmpeg binary not found")
)
