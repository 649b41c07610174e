package verify

import "fmt"

// Policy controls how the name-match and face-match signals fuse into the
// participation verdict. PolicyEither accepts a match on name alone or face
// alone; PolicyBoth requires both.
type Policy string

const (
	PolicyEither Policy = "or"
	PolicyBoth   Policy = "and"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyEither, PolicyBoth:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown verification policy %q", s)
	}
}

// Decide fuses the two check signals. Pure and total.
func (p Policy) Decide(nameMatch, faceMatch bool) bool {
	if p == PolicyBoth {
		return nameMatch && faceMatch
	}
	return nameMatch || faceMatch
}
