package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/cardcast/pkg/api"
	"github.com/spf13/cobra"
)

type callOptions struct {
	params []string
	filter []string
	query  []string
	data   string
	dryRun bool
}

// RequestPreview describes a request without sending it.
type RequestPreview struct {
	Method   string      `json:"method"         yaml:"method"`
	URL      string      `json:"url"            yaml:"url"`
	Endpoint string      `json:"endpoint"       yaml:"endpoint"`
	Action   string      `json:"action"         yaml:"action"`
	Body     interface{} `json:"body,omitempty" yaml:"body,omitempty"`
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	var opts callOptions

	cmd := &cobra.Command{
		Use:   "call ENDPOINT ACTION",
		Short: "Call any endpoint of the API definition",
		Long: `Compose and send a request the way the fluent API does: select ENDPOINT,
apply each --filter as a query parameter, then perform ACTION with --param
values filling URI placeholders, --data as the body and --query as extra
query parameters.`,
		Example: `  cardcast call decks index --filter category=funny --filter limit=10
  cardcast call deck show --param playcode=JJDFG
  cardcast call cards index --filter playcode=JJDFG --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "URI parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.filter, "filter", "f", nil, "query filter as key=value, or key for true (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.query, "query", "q", nil, "extra query parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "JSON object sent as the body of create and edit actions")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the request instead of sending it")

	return cmd
}

func runCall(cmd *cobra.Command, endpoint, action string, opts callOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	chain := client.Select(endpoint)

	for _, raw := range opts.filter {
		key, value, found := strings.Cut(raw, "=")
		if !found {
			chain.Filter(key)

			continue
		}

		chain.Filter(key, parseValue(value))
	}

	params, err := parseKeyValues(opts.params)
	if err != nil {
		return err
	}

	query, err := parseKeyValues(opts.query)
	if err != nil {
		return err
	}

	actionArgs := []interface{}{params}

	if api.SendsBody(client.Actions().Method(action)) {
		body, err := parseData(opts.data)
		if err != nil {
			return err
		}

		actionArgs = append(actionArgs, body)
	}

	actionArgs = append(actionArgs, query)

	if opts.dryRun {
		req, err := chain.Build(action, actionArgs...)
		if err != nil {
			return err
		}

		p := preview(client.API, req)

		return render(cmd, p, func(w io.Writer) error {
			return renderProperties(w, [][2]string{
				{"Method", p.Method},
				{"URL", p.URL},
				{"Endpoint", p.Endpoint},
				{"Action", p.Action},
			})
		})
	}

	resp, err := chain.Action(cmd.Context(), action, actionArgs...)
	if err != nil {
		return err
	}

	var decoded interface{}
	if len(bytes.TrimSpace(resp.Body)) == 0 || json.Unmarshal(resp.Body, &decoded) != nil {
		_, err = cmd.OutOrStdout().Write(resp.Body)

		return err
	}

	return render(cmd, decoded, func(w io.Writer) error {
		var pretty bytes.Buffer

		err := json.Indent(&pretty, resp.Body, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting response: %w", err)
		}

		_, err = fmt.Fprintln(w, pretty.String())

		return err
	})
}

func preview(client *api.API, req *api.Request) RequestPreview {
	url := client.BaseURL(req.Version) + "/" + req.Path
	if req.RawQuery != "" {
		url += "?" + req.RawQuery
	}

	p := RequestPreview{
		Method:   req.Method,
		URL:      url,
		Endpoint: req.Endpoint,
		Action:   req.Action,
	}

	switch {
	case req.JSON != nil:
		p.Body = req.JSON
	case req.Form != nil:
		p.Body = req.Form.Encode()
	}

	return p
}

func parseKeyValues(pairs []string) (api.Params, error) {
	params := make(api.Params, len(pairs))

	for _, raw := range pairs {
		key, value, found := strings.Cut(raw, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, raw)
		}

		params[key] = parseValue(value)
	}

	return params, nil
}

// parseValue turns "true" and "false" into booleans so they are sent as the
// API's boolean values. Everything else stays a string.
func parseValue(value string) interface{} {
	switch value {
	case "true":
		return true
	case "false":
		return false
	default:
		return value
	}
}

// parseData decodes the request body. An empty string means no body.
func parseData(data string) (interface{}, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}

	var body map[string]interface{}

	err := json.Unmarshal([]byte(data), &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequestData, err)
	}

	return api.Params(body), nil
}
