package validation

import (
	"net/url"
	"path"
	"strings"

	apperrors "go-body-analyzer/internal/errors"
)

// modelArtifactExt is the only artifact encoding the model loader reads
const modelArtifactExt = ".json"

// ModelURLPolicy decides which remote locations a model artifact may be
// downloaded from. Only web URLs naming a JSON document pass; local files
// are configured through MODEL_PATH instead.
type ModelURLPolicy struct {
	schemes map[string]bool
	hosts   map[string]bool
}

// NewModelURLPolicy accepts http and https URLs on any of hosts, or on any
// host when hosts is empty.
func NewModelURLPolicy(hosts ...string) *ModelURLPolicy {
	p := &ModelURLPolicy{
		schemes: map[string]bool{"http": true, "https": true},
		hosts:   make(map[string]bool, len(hosts)),
	}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			p.hosts[h] = true
		}
	}
	return p
}

// HTTPSOnly drops plain http from the accepted schemes
func (p *ModelURLPolicy) HTTPSOnly() *ModelURLPolicy {
	delete(p.schemes, "http")
	return p
}

// Check returns a validation error describing the first rule rawURL breaks
func (p *ModelURLPolicy) Check(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return apperrors.NewValidationError("Model URL cannot be empty", nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid model URL", err)
	}
	if !p.schemes[strings.ToLower(u.Scheme)] {
		return apperrors.NewValidationError("Model URL must use "+p.schemeList(), nil)
	}
	if u.Hostname() == "" {
		return apperrors.NewValidationError("Model URL must name a host", nil)
	}
	// credentials would end up in logs and error messages
	if u.User != nil {
		return apperrors.NewValidationError("Model URL must not embed credentials", nil)
	}
	if len(p.hosts) > 0 && !p.hosts[strings.ToLower(u.Hostname())] {
		return apperrors.NewValidationError("Model URL host not allowed", nil)
	}
	if !strings.EqualFold(path.Ext(u.Path), modelArtifactExt) {
		return apperrors.NewValidationError("Model URL must point to a "+modelArtifactExt+" artifact", nil)
	}
	return nil
}

func (p *ModelURLPolicy) schemeList() string {
	if p.schemes["http"] {
		return "http or https"
	}
	return "https"
}
