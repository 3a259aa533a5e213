package pathutils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHomeExpanderExpand(t *testing.T) {
	const homeDirectory = "/home/runner"
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "BareTilde", input: "~", expected: homeDirectory},
		{name: "TildeSlash", input: "~/.npmrc", expected: filepath.Join(homeDirectory, ".npmrc")},
		{name: "AbsolutePath", input: "/etc/npmrc", expected: "/etc/npmrc"},
		{name: "OtherUser", input: "~builder/.npmrc", expected: "~builder/.npmrc"},
		{name: "Empty", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			expander := NewHomeExpanderWithProvider(func() (string, error) { return homeDirectory, nil })
			require.Equal(t, testCase.expected, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderKeepsPathWhenHomeUnavailable(t *testing.T) {
	expander := NewHomeExpanderWithProvider(func() (string, error) { return "", errors.New("no home") })
	require.Equal(t, "~/.npmrc", expander.Expand("~/.npmrc"))
}
