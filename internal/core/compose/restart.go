package compose

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RestartPolicy represents the restart policy.
type RestartPolicy string

const (
	RestartNo            RestartPolicy = "no"
	RestartAlways        RestartPolicy = "always"
	RestartOnFailure     RestartPolicy = "on-failure"
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// restartPolicyRegex matches the policies accepted by the Docker engine.
// on-failure takes an optional retry count.
var restartPolicyRegex = regexp.MustCompile(`^(no|always|unless-stopped|on-failure(:[0-9]+)?)$`)

// ParseRestartPolicy validates a restart policy.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	if !restartPolicyRegex.MatchString(s) {
		return "", NewParseError("restart policy", s, nil)
	}
	return RestartPolicy(s), nil
}

// Name returns the policy without its retry count.
func (r RestartPolicy) Name() RestartPolicy {
	name, _, _ := strings.Cut(string(r), ":")
	return RestartPolicy(name)
}

// MaxRetries returns the on-failure retry count, 0 when unlimited.
func (r RestartPolicy) MaxRetries() int {
	_, count, ok := strings.Cut(string(r), ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return 0
	}
	return n
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RestartPolicy) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalarValue(node)
	if err != nil {
		return err
	}
	parsed, err := ParseRestartPolicy(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r RestartPolicy) MarshalYAML() (any, error) {
	return stringNode(string(r)), nil
}
