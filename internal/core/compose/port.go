package compose

import (
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"
)

// Port is a published port in the short syntax
// "[[host_ip:]published:]target[/protocol]". Ranges ("3000-3005") are kept
// as ranges.
type Port struct {
	HostIP    string
	Published string // host port or range, "" for an ephemeral port
	Target    string // container port or range
	Protocol  string // tcp, udp or sctp
}

// ParsePort parses and validates a port specification.
//
// Examples:
//
//	ParsePort("80")                   // {Target: "80", Protocol: "tcp"}
//	ParsePort("8080:80")              // {Published: "8080", Target: "80", Protocol: "tcp"}
//	ParsePort("127.0.0.1:53:53/udp")  // {HostIP: "127.0.0.1", Published: "53", Target: "53", Protocol: "udp"}
func ParsePort(s string) (Port, error) {
	mappings, err := nat.ParsePortSpec(s)
	if err != nil {
		return Port{}, NewParseError("port", s, err)
	}
	if len(mappings) == 0 {
		return Port{}, NewParseError("port", s, nil)
	}

	first, last := mappings[0], mappings[len(mappings)-1]
	p := Port{
		HostIP:   first.Binding.HostIP,
		Target:   portRange(first.Port.Int(), last.Port.Int()),
		Protocol: first.Port.Proto(),
	}
	switch {
	case len(mappings) == 1:
		p.Published = first.Binding.HostPort
	case first.Binding.HostPort != "":
		p.Published = first.Binding.HostPort + "-" + last.Binding.HostPort
	}
	return p, nil
}

func portRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

func (p Port) String() string {
	var b strings.Builder
	if p.HostIP != "" {
		if strings.Contains(p.HostIP, ":") {
			b.WriteString("[" + p.HostIP + "]")
		} else {
			b.WriteString(p.HostIP)
		}
		b.WriteString(":" + p.Published + ":")
	} else if p.Published != "" {
		b.WriteString(p.Published + ":")
	}
	b.WriteString(p.Target)
	if p.Protocol != "" && p.Protocol != "tcp" {
		b.WriteString("/" + p.Protocol)
	}
	return b.String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalarValue(node)
	if err != nil {
		return err
	}
	parsed, err := ParsePort(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Port) MarshalYAML() (any, error) {
	return stringNode(p.String()), nil
}
