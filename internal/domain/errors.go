package domain

import "errors"

var (
	ErrInvalidProjectName  = errors.New("invalid project name")
	ErrInvalidBacklogName  = errors.New("invalid backlog name")
	ErrInvalidTodoName     = errors.New("invalid to do name")
	ErrInvalidID           = errors.New("invalid id")
	ErrBacklogInUse        = errors.New("backlog name already used")
	ErrBacklogNotFree      = errors.New("backlog is not free")
	ErrNoBacklogsSelected  = errors.New("no backlogs selected")
	ErrBacklogsUnavailable = errors.New("backlogs not available")
	ErrTodoNotFound        = errors.New("to do not found")
	ErrProcessNotFound     = errors.New("process not found")
)
