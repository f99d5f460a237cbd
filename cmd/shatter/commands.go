package main

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shatter/internal/autocluster"
	"github.com/Faultbox/shatter/internal/command"
	"github.com/Faultbox/shatter/internal/proximity"
	"github.com/Faultbox/shatter/internal/scene"
	"github.com/Faultbox/shatter/pkg/geometry"
)

// TreeCmd prints a scene's hierarchy.
type TreeCmd struct {
	Scene string `arg:"" type:"existingfile" help:"Scene YAML file."`
}

func (cmd *TreeCmd) Run(e *env) error {
	c, err := scene.Load(cmd.Scene)
	if err != nil {
		return err
	}
	return scene.WriteTree(e.out, c)
}

// ProximityCmd builds proximity for a scene.
type ProximityCmd struct {
	Scene string `arg:"" type:"existingfile" help:"Scene YAML file."`
}

func (cmd *ProximityCmd) Run(e *env) error {
	c, err := scene.Load(cmd.Scene)
	if err != nil {
		return err
	}
	res, err := proximity.Update(e.ctx, c, proximity.FromConfig(e.cfg))
	if err != nil {
		return err
	}
	return writeProximity(e.out, c, res)
}

// AutoclusterCmd clusters one level of a scene.
type AutoclusterCmd struct {
	Scene string `arg:"" type:"existingfile" help:"Scene YAML file."`
	Level int    `default:"1" help:"Hierarchy level to cluster."`
	Mode  string `help:"Grouping mode: proximity, bounding_box or distance. Defaults to the config value."`
	Sites int    `help:"Target cluster count. Defaults to the config value."`
}

func (cmd *AutoclusterCmd) Run(e *env) error {
	c, err := scene.Load(cmd.Scene)
	if err != nil {
		return err
	}
	req, err := autocluster.RequestFromConfig(e.cfg, cmd.Level)
	if err != nil {
		return err
	}
	if cmd.Mode != "" {
		if req.Mode, err = autocluster.ParseMode(cmd.Mode); err != nil {
			return err
		}
	}
	if cmd.Sites > 0 {
		req.SiteCount = cmd.Sites
	}

	res, err := autocluster.Run(e.ctx, c, req)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(e.out, "skipped: %d candidates at level %d, %d sites requested\n", res.Candidates, req.Level, req.SiteCount)
	} else {
		fmt.Fprintf(e.out, "%d candidates, %d groups, %d clusters\n", res.Candidates, len(res.Groups), len(res.Clusters))
	}
	return scene.WriteTree(e.out, c)
}

// ExecCmd runs one fracture command.
type ExecCmd struct {
	Scene string `arg:"" type:"existingfile" help:"Scene YAML file."`
	Kind  string `arg:"" enum:"${kinds}" help:"Command to run: ${kinds}."`
	Nodes []int  `arg:"" optional:"" help:"Selected transform indices."`
	Level int    `default:"-1" help:"Level for uncluster (negative: any) and autocluster."`
}

func (cmd *ExecCmd) Run(e *env) error {
	c, err := scene.Load(cmd.Scene)
	if err != nil {
		return err
	}
	kind, err := command.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}

	level := cmd.Level
	if kind == command.KindAutoCluster && level < 0 {
		level = 1
	}
	req, err := autocluster.RequestFromConfig(e.cfg, level)
	if err != nil {
		return err
	}

	out, err := command.Execute(e.ctx, c, command.Command{
		Kind:        kind,
		Nodes:       cmd.Nodes,
		Level:       cmd.Level,
		Proximity:   proximity.FromConfig(e.cfg),
		AutoCluster: req,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "%s: %d changed", out.Kind, out.Changed)
	if len(out.Created) > 0 {
		fmt.Fprintf(e.out, ", created %v", out.Created)
	}
	fmt.Fprintln(e.out)
	if out.Proximity != nil {
		return writeProximity(e.out, c, *out.Proximity)
	}
	return scene.WriteTree(e.out, c)
}

// ShowConfigCmd shows the configuration after file and flag overrides.
type ShowConfigCmd struct {
	Out  string `type:"path" help:"Write the configuration to this file instead of printing it."`
	Save bool   `help:"Write the configuration to the user config directory."`
}

func (cmd *ShowConfigCmd) Run(e *env) error {
	switch {
	case cmd.Out != "":
		if err := e.cfg.SaveTo(cmd.Out); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "wrote %s\n", cmd.Out)
		return nil
	case cmd.Save:
		return e.cfg.Save()
	}
	enc := yaml.NewEncoder(e.out)
	enc.SetIndent(2)
	if err := enc.Encode(e.cfg); err != nil {
		return err
	}
	return enc.Close()
}

// writeProximity prints each geometry's neighbours, then one line per
// breaking region.
func writeProximity(w io.Writer, c *geometry.Collection, res proximity.Result) error {
	fmt.Fprintf(w, "%d triangles, %d candidate pairs, %d contacts\n", res.Triangles, res.Candidates, len(res.Pairs))
	for g := 0; g < c.NumGeometry(); g++ {
		members := c.Proximity.Members(g)
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = fmt.Sprint(m)
		}
		fmt.Fprintf(w, "%d (%s): %s\n", g, c.BoneName.At(int(c.TransformIndex.At(g))), strings.Join(ids, " "))
	}
	for _, r := range res.Regions {
		_, err := fmt.Fprintf(w, "%d-%d face=%d centroid=(%.3f %.3f %.3f) normal=(%.3f %.3f %.3f) radius=%.3f..%.3f\n",
			r.A, r.B, r.Face,
			r.Centroid[0], r.Centroid[1], r.Centroid[2],
			r.Normal[0], r.Normal[1], r.Normal[2],
			r.InnerRadius, r.OuterRadius,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
