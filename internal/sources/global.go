package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/temirov/pipegate/internal/metadata"
)

const (
	fileSchemeConstant                 = "file"
	acceptHeaderConstant               = "Accept"
	jsonMediaTypeConstant              = "application/json"
	defaultGlobalFetchTimeout          = 30 * time.Second
	maximumGlobalConfigurationBytes    = 4 << 20
	globalSourceFieldConstant          = "global_config_uri"
	missingGlobalURIMessageConstant    = "missing required option"
	failedToFetchGlobalMessageConstant = "failed to fetch global pipeline config"
	failedToParseGlobalMessageConstant = "failed to parse global pipeline config"
	unexpectedStatusTemplateConstant   = "unexpected HTTP status %s"
	oversizedBodyTemplateConstant      = "response body exceeds %d bytes"
)

// GlobalFetcherOptions configures an HTTPGlobalConfigurationFetcher.
type GlobalFetcherOptions struct {
	URI        string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	ReadFile   FileReader
}

// HTTPGlobalConfigurationFetcher retrieves and validates the organisation-wide configuration.
type HTTPGlobalConfigurationFetcher struct {
	options GlobalFetcherOptions
}

// NewHTTPGlobalConfigurationFetcher constructs a fetcher. A non-empty Token is sent as a bearer token.
func NewHTTPGlobalConfigurationFetcher(options GlobalFetcherOptions) *HTTPGlobalConfigurationFetcher {
	if options.Timeout <= 0 {
		options.Timeout = defaultGlobalFetchTimeout
	}
	if options.HTTPClient == nil {
		options.HTTPClient = http.DefaultClient
	}
	return &HTTPGlobalConfigurationFetcher{options: options}
}

// Fetch downloads, decodes and validates the global configuration. Every failure is fatal.
func (fetcher *HTTPGlobalConfigurationFetcher) Fetch(executionContext context.Context) (metadata.GlobalConfiguration, error) {
	uri := strings.TrimSpace(fetcher.options.URI)
	if len(uri) == 0 {
		return metadata.GlobalConfiguration{}, &metadata.ConfigurationError{Source: metadata.GlobalConfigurationSourceConstant, Field: globalSourceFieldConstant, Message: missingGlobalURIMessageConstant}
	}

	contents, fetchError := fetcher.read(executionContext, uri)
	if fetchError != nil {
		return metadata.GlobalConfiguration{}, &metadata.ConfigurationError{Source: uri, Message: failedToFetchGlobalMessageConstant, Cause: fetchError}
	}

	var global metadata.GlobalConfiguration
	if decodeError := json.Unmarshal(contents, &global); decodeError != nil {
		return metadata.GlobalConfiguration{}, &metadata.ConfigurationError{Source: uri, Message: failedToParseGlobalMessageConstant, Cause: decodeError}
	}
	if validationError := metadata.ValidateGlobalConfiguration(global); validationError != nil {
		return metadata.GlobalConfiguration{}, validationError
	}
	return global, nil
}

func (fetcher *HTTPGlobalConfigurationFetcher) read(executionContext context.Context, uri string) ([]byte, error) {
	parsedURI, parseError := url.Parse(uri)
	if parseError != nil {
		return nil, parseError
	}
	if parsedURI.Scheme == fileSchemeConstant {
		return resolveFileReader(fetcher.options.ReadFile)(parsedURI.Path)
	}

	requestContext, cancel := context.WithTimeout(executionContext, fetcher.options.Timeout)
	defer cancel()

	request, requestError := http.NewRequestWithContext(requestContext, http.MethodGet, uri, nil)
	if requestError != nil {
		return nil, requestError
	}
	request.Header.Set(acceptHeaderConstant, jsonMediaTypeConstant)

	response, responseError := fetcher.client(requestContext).Do(request)
	if responseError != nil {
		return nil, responseError
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf(unexpectedStatusTemplateConstant, response.Status)
	}
	contents, readError := io.ReadAll(io.LimitReader(response.Body, maximumGlobalConfigurationBytes+1))
	if readError != nil {
		return nil, readError
	}
	if len(contents) > maximumGlobalConfigurationBytes {
		return nil, fmt.Errorf(oversizedBodyTemplateConstant, maximumGlobalConfigurationBytes)
	}
	return contents, nil
}

func (fetcher *HTTPGlobalConfigurationFetcher) client(requestContext context.Context) *http.Client {
	if len(fetcher.options.Token) == 0 {
		return fetcher.options.HTTPClient
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: fetcher.options.Token})
	clientContext := context.WithValue(requestContext, oauth2.HTTPClient, fetcher.options.HTTPClient)
	return oauth2.NewClient(clientContext, tokenSource)
}
