package compose

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// =============================================================================
// Start Order
// =============================================================================

// Dependencies returns the services s must start after: the depends_on
// entries and the targets of its links, sorted and without duplicates.
// external_links point outside the file and are not included.
func (s Service) Dependencies() ([]string, error) {
	seen := make(map[string]bool, len(s.DependsOn)+len(s.Links))
	for _, name := range s.DependsOn {
		seen[name] = true
	}
	for _, link := range s.Links {
		target, err := link.Value()
		if err != nil {
			return nil, fmt.Errorf("links: %w", err)
		}
		seen[target.Name] = true
	}

	deps := make([]string, 0, len(seen))
	for name := range seen {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps, nil
}

// StartOrder returns the service names ordered so that every service comes
// after the services it depends on. Services that become ready together are
// ordered by name, so the result is stable for a given file.
//
// A dependency on a service the file does not define is a ValidationError;
// a cycle returns ErrCircularDependency naming the services involved.
// Links still holding interpolation syntax must be resolved first.
func (f *File) StartOrder() ([]string, error) {
	names := f.ServiceNames()
	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))

	for _, name := range names {
		svc := f.Services[name]
		if svc == nil {
			continue
		}
		deps, err := svc.Dependencies()
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}
		for _, dep := range deps {
			if _, ok := f.Services[dep]; !ok {
				return nil, NewValidationError("dependency", dep,
					fmt.Sprintf("service %q depends on an undefined service", name))
			}
			dependents[dep] = append(dependents[dep], name)
		}
		inDegree[name] = len(deps)
	}

	// Kahn's algorithm; ready is kept sorted.
	var ready []string
	for _, name := range names {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(names))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				i, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, i, dependent)
			}
		}
	}

	if len(order) < len(names) {
		var cycle []string
		for _, name := range names {
			if inDegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(cycle, ", "))
	}
	return order, nil
}
