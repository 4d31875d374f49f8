package commands

import (
	"io"
	"sort"
	"strings"

	"github.com/fivetwenty-io/cardcast/pkg/api"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// EndpointInfo describes one endpoint pattern of the definition.
type EndpointInfo struct {
	Version    string   `json:"version"              yaml:"version"`
	Endpoint   string   `json:"endpoint"             yaml:"endpoint"`
	Actions    []string `json:"actions"              yaml:"actions"`
	Template   string   `json:"template"             yaml:"template"`
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Description is the output of the describe command.
type Description struct {
	Base      string         `json:"base"      yaml:"base"`
	Version   string         `json:"version"   yaml:"version"`
	Versions  []string       `json:"versions"  yaml:"versions"`
	Endpoints []EndpointInfo `json:"endpoints" yaml:"endpoints"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Describe the API definition",
		Long:  "List the endpoints, actions, URI templates and query properties of the API definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			description := describe(client.API)

			return render(cmd, description, func(w io.Writer) error {
				rows := make([][]string, 0, len(description.Endpoints))
				for _, info := range description.Endpoints {
					rows = append(rows, []string{
						info.Version,
						info.Endpoint,
						strings.Join(info.Actions, ", "),
						info.Template,
						strings.Join(info.Properties, ", "),
					})
				}

				return renderTable(w, []string{"Version", "Endpoint", "Actions", "Template", "Properties"}, rows)
			})
		},
	}
}

func describe(client *api.API) Description {
	def := client.Definition()
	actions := client.Actions()

	versions := def.Versions
	if len(versions) == 0 {
		versions = []string{client.Version()}
	}

	description := Description{
		Base:     def.Base,
		Version:  client.Version(),
		Versions: versions,
	}

	for _, version := range versions {
		for _, route := range def.Routes(version) {
			served := route.Actions
			if len(served) == 0 {
				served = actions.Actions()
			}

			properties := map[string]bool{}

			for _, action := range served {
				for _, property := range def.AllowedProperties(version, route.Name, action) {
					properties[property] = true
				}
			}

			info := EndpointInfo{
				Version:  version,
				Endpoint: route.Name,
				Actions:  served,
				Template: route.Template,
			}

			info.Properties = lo.Keys(properties)
			sort.Strings(info.Properties)
			description.Endpoints = append(description.Endpoints, info)
		}
	}

	return description
}
