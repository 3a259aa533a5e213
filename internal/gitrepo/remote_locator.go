package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshSchemePrefixConstant      = "ssh://"
	httpsSchemePrefixConstant    = "https://"
	scpUserDelimiterConstant     = "@"
	scpPathDelimiterConstant     = ":"
	pathSeparatorConstant        = "/"
	gitSuffixConstant            = ".git"
	defaultHostConstant          = "github.com"
	invalidRemoteMessageConstant = "invalid remote url"
	emptyRemoteMessageConstant   = "remote url must be provided"
	locatorParseTemplateConstant = "%s: %s"
	cloneURLTemplateConstant     = "https://%s/%s/%s.git"
	incompleteLocatorTemplate    = "repository locator requires owner and name, got %q/%q"
)

// RemoteLocator names a hosted repository.
type RemoteLocator struct {
	Host  string
	Owner string
	Name  string
}

// RemoteParseError reports a remote URL that does not name a hosted repository.
type RemoteParseError struct {
	Input   string
	Message string
}

func (parseError RemoteParseError) Error() string {
	return fmt.Sprintf(locatorParseTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteLocator understands https://host/owner/name(.git), ssh://git@host/owner/name(.git) and
// git@host:owner/name(.git).
func ParseRemoteLocator(remote string) (RemoteLocator, error) {
	trimmed := strings.TrimSpace(remote)
	switch {
	case len(trimmed) == 0:
		return RemoteLocator{}, RemoteParseError{Input: remote, Message: emptyRemoteMessageConstant}
	case strings.HasPrefix(trimmed, httpsSchemePrefixConstant):
		return locatorFromHostPath(remote, strings.TrimPrefix(trimmed, httpsSchemePrefixConstant), pathSeparatorConstant)
	case strings.HasPrefix(trimmed, sshSchemePrefixConstant):
		return locatorFromHostPath(remote, stripUser(strings.TrimPrefix(trimmed, sshSchemePrefixConstant)), pathSeparatorConstant)
	case strings.Contains(trimmed, scpUserDelimiterConstant):
		return locatorFromHostPath(remote, stripUser(trimmed), scpPathDelimiterConstant)
	default:
		return RemoteLocator{}, RemoteParseError{Input: remote, Message: invalidRemoteMessageConstant}
	}
}

func stripUser(userHostPath string) string {
	if _, hostPath, found := strings.Cut(userHostPath, scpUserDelimiterConstant); found {
		return hostPath
	}
	return userHostPath
}

func locatorFromHostPath(input string, hostPath string, hostDelimiter string) (RemoteLocator, error) {
	host, path, found := strings.Cut(hostPath, hostDelimiter)
	if !found || len(host) == 0 {
		return RemoteLocator{}, RemoteParseError{Input: input, Message: invalidRemoteMessageConstant}
	}
	segments := strings.Split(strings.Trim(path, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) != 2 {
		return RemoteLocator{}, RemoteParseError{Input: input, Message: invalidRemoteMessageConstant}
	}
	name := strings.TrimSuffix(segments[1], gitSuffixConstant)
	if len(segments[0]) == 0 || len(name) == 0 {
		return RemoteLocator{}, RemoteParseError{Input: input, Message: invalidRemoteMessageConstant}
	}
	return RemoteLocator{Host: host, Owner: segments[0], Name: name}, nil
}

// CloneURL renders the https clone URL, defaulting the host to github.com.
func (locator RemoteLocator) CloneURL() (string, error) {
	if len(locator.Owner) == 0 || len(locator.Name) == 0 {
		return "", fmt.Errorf(incompleteLocatorTemplate, locator.Owner, locator.Name)
	}
	host := locator.Host
	if len(host) == 0 {
		host = defaultHostConstant
	}
	return fmt.Sprintf(cloneURLTemplateConstant, host, locator.Owner, locator.Name), nil
}
