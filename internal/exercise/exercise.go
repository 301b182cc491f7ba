package exercise

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownExercise = errors.New("unknown exercise")

type Kind string

const (
	KindPushUp Kind = "pushup"
	KindSquat  Kind = "squat"
	KindPullUp Kind = "pullup"
)

func Kinds() []Kind {
	return []Kind{KindPushUp, KindSquat, KindPullUp}
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts the usual spellings, e.g. "push-up", "Push_Ups", "pullups".
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	norm = strings.TrimSuffix(norm, "s")

	for _, k := range Kinds() {
		if norm == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownExercise, s)
}
