// Package snippets generates the markup that embeds a published chart in
// another site.
package snippets

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"
	"unicode"
)

type Framework string

const (
	FrameworkHTML   Framework = "html"
	FrameworkReact  Framework = "react"
	FrameworkVue    Framework = "vue"
	FrameworkSvelte Framework = "svelte"
)

// Config describes the embedded chart. Empty selection fields fall back to
// the chart defaults on the server.
type Config struct {
	DatasetName string
	ServerURL   string
	Variation   string
	Period      string
	Style       string
	Theme       string
	Height      int
}

type SnippetFile struct {
	Filename string
	Content  string
}

type templateData struct {
	DatasetName   string
	ComponentName string
	ServerURL     string
	Attrs         []attr
}

type attr struct {
	Name  string
	Value string
}

func Generate(framework Framework, config Config) ([]SnippetFile, error) {
	if config.DatasetName == "" {
		return nil, fmt.Errorf("dataset name is required")
	}
	data := buildTemplateData(config)

	switch framework {
	case FrameworkHTML:
		return render("html", "ratechart-embed.html", htmlTemplate, data)
	case FrameworkReact:
		return render("react", data.ComponentName+"Chart.tsx", reactTemplate, data)
	case FrameworkVue:
		return render("vue", data.ComponentName+"Chart.vue", vueTemplate, data)
	case FrameworkSvelte:
		return render("svelte", data.ComponentName+"Chart.svelte", svelteTemplate, data)
	default:
		return nil, fmt.Errorf("unknown framework %q", framework)
	}
}

func ParseFramework(s string) (Framework, error) {
	for _, f := range AllFrameworks() {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown framework %q", s)
}

func AllFrameworks() []Framework {
	return []Framework{FrameworkHTML, FrameworkReact, FrameworkVue, FrameworkSvelte}
}

func buildTemplateData(config Config) templateData {
	data := templateData{
		DatasetName:   html.EscapeString(config.DatasetName),
		ComponentName: toPascalCase(config.DatasetName),
		ServerURL:     strings.TrimRight(config.ServerURL, "/"),
	}
	for _, a := range []attr{
		{"variation", config.Variation},
		{"period", config.Period},
		{"style", config.Style},
		{"theme", config.Theme},
	} {
		if a.Value != "" {
			data.Attrs = append(data.Attrs, attr{Name: "data-rc-" + a.Name, Value: html.EscapeString(a.Value)})
		}
	}
	if config.Height > 0 {
		data.Attrs = append(data.Attrs, attr{Name: "data-rc-height", Value: fmt.Sprint(config.Height)})
	}
	return data
}

// toPascalCase turns a dataset name like "hero-test" into "HeroTest".
func toPascalCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "Rate" + out
	}
	return out
}

func render(name, filename, content string, data templateData) ([]SnippetFile, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	return []SnippetFile{{Filename: filename, Content: buf.String()}}, nil
}

const htmlTemplate = `<!-- ratechart: {{.DatasetName}} -->
<div data-rc-chart="{{.DatasetName}}"{{range .Attrs}} {{.Name}}="{{.Value}}"{{end}}></div>
<script src="{{.ServerURL}}/embed.js" defer></script>
`

const reactTemplate = `import { useEffect } from 'react';

const SERVER_URL = '{{.ServerURL}}';

export function {{.ComponentName}}Chart({ className }: { className?: string }) {
  useEffect(() => {
    if (document.querySelector('script[data-rc-embed]')) return;
    const s = document.createElement('script');
    s.src = SERVER_URL + '/embed.js';
    s.defer = true;
    s.setAttribute('data-rc-embed', '');
    document.body.appendChild(s);
  }, []);

  return <div className={className} data-rc-chart="{{.DatasetName}}"{{range .Attrs}} {{.Name}}="{{.Value}}"{{end}} />;
}
`

const vueTemplate = `<template>
  <div data-rc-chart="{{.DatasetName}}"{{range .Attrs}} {{.Name}}="{{.Value}}"{{end}}></div>
</template>

<script setup lang="ts">
import { onMounted } from 'vue';

const SERVER_URL = '{{.ServerURL}}';

onMounted(() => {
  if (document.querySelector('script[data-rc-embed]')) return;
  const s = document.createElement('script');
  s.src = SERVER_URL + '/embed.js';
  s.defer = true;
  s.setAttribute('data-rc-embed', '');
  document.body.appendChild(s);
});
</script>
`

const svelteTemplate = `<script lang="ts">
  import { onMount } from 'svelte';

  const SERVER_URL = '{{.ServerURL}}';

  onMount(() => {
    if (document.querySelector('script[data-rc-embed]')) return;
    const s = document.createElement('script');
    s.src = SERVER_URL + '/embed.js';
    s.defer = true;
    s.setAttribute('data-rc-embed', '');
    document.body.appendChild(s);
  });
</script>

<div data-rc-chart="{{.DatasetName}}"{{range .Attrs}} {{.Name}}="{{.Value}}"{{end}}></div>
`
