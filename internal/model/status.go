package model

import "fmt"

type Status string

const (
	StatusUpcoming  Status = "up-coming"
	StatusOngoing   Status = "on-going"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Terminal states admit no further transition (canceled -> canceled excepted).
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CanTransition applies the appointment state table.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusUpcoming:
		return to == StatusOngoing || to == StatusCanceled
	case StatusOngoing:
		return to == StatusCompleted || to == StatusCanceled
	case StatusCanceled:
		return to == StatusCanceled
	case StatusCompleted:
		return false
	}
	return false
}
