package main

import (
	"fmt"
	"mime"
	"net/url"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/deephdc/demoapp/schema"
)

// schemaFlags turns the fields of s into string flags named after them.
func schemaFlags(s *schema.Schema) []cli.Flag {
	flags := make([]cli.Flag, 0, len(s.Fields()))
	for _, f := range s.Fields() {
		usage := f.Description
		if f.Kind == schema.File {
			usage += " (path)"
		}
		if len(f.Choices) > 0 {
			usage += fmt.Sprintf(" %v", f.Choices)
		}
		flag := &cli.StringFlag{
			Name:     f.Name,
			Usage:    usage,
			Required: f.Required,
		}
		if f.Default != nil {
			flag.DefaultText = fmt.Sprint(f.Default)
		}
		flags = append(flags, flag)
	}
	return flags
}

// schemaArgs parses the flags set on c against s. File flags name local
// files, used in place.
func schemaArgs(c *cli.Context, s *schema.Schema) (schema.Args, error) {
	values := url.Values{}
	files := map[string]schema.UploadedFile{}
	for _, f := range s.Fields() {
		if !c.IsSet(f.Name) {
			continue
		}
		v := c.String(f.Name)
		if f.Kind != schema.File {
			values.Set(f.Name, v)
			continue
		}
		path, err := filepath.Abs(v)
		if err != nil {
			return nil, err
		}
		files[f.Name] = schema.UploadedFile{
			Path:        path,
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		}
	}
	return s.Parse(values, files)
}
