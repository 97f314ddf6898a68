// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Command cdbget downloads archive packages through Aspera.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/connectomedb/cdb-cli-sdk/sdk/aspera"
	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
	"github.com/connectomedb/cdb-cli-sdk/sdk/services/archive"
	"github.com/connectomedb/cdb-cli-sdk/sdk/services/mirror"
	"github.com/connectomedb/cdb-cli-sdk/sdk/services/packages"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// stdout receives command results.
var stdout io.Writer = os.Stdout

const usage = `usage: cdbget [--env name] [-o json|yaml] <command> [flags]

commands:
  config                         show effective settings (secrets masked)
  config save [--set k=v ...]    write settings into the INI environment
  packages                       list package types
  subjects  --project P          list subjects of a project
  avail     -s S [-p P]          package availability for subjects
  plan      -s S [-p P] [-d D]   print the ascp command without running it
            [--save FILE]        also keep the transfer spec for --spec
  plan      --spec FILE          compile a saved transfer spec
  download  -s S [-p P] [-d D]   download packages with ascp
  mirror push  -i PATH [--bucket B] [--prefix X]
  mirror pull  --url s3://... [-d D]
`

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:]); err != nil {
		log.Printf("cdbget: %v", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var tf *utils.TransferFailedError
	switch {
	case errors.As(err, &tf) && tf.ExitCode > 0:
		return tf.ExitCode
	case errors.Is(err, utils.ErrConfiguration):
		return 78
	default:
		return 1
	}
}

type globalOpts struct {
	env    string
	output string
}

func run(args []string) error {
	fs := pflag.NewFlagSet("cdbget", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	var g globalOpts
	fs.StringVar(&g.env, "env", "", "INI environment (section) to use")
	fs.StringVarP(&g.output, "output", "o", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	if err := utils.RegisterIniCfgWithViper(g.env); err != nil {
		return err
	}
	conf, err := utils.LoadSDKConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "config":
		return runConfig(g, cmdArgs)
	case "packages":
		return runPackages(ctx, g, conf)
	case "subjects":
		return runSubjects(ctx, g, conf, cmdArgs)
	case "avail":
		return runAvail(ctx, g, conf, cmdArgs)
	case "plan":
		return runPlan(ctx, g, conf, cmdArgs)
	case "download":
		return runDownload(ctx, g, conf, cmdArgs)
	case "mirror":
		return runMirror(ctx, g, conf, cmdArgs)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (g globalOpts) print(v any) error {
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(g.output) {
	case "yaml", "yml":
		b, err = yaml.Marshal(v)
	default:
		b, err = json.MarshalIndent(v, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return err
	}
	_, err = stdout.Write(b)
	return err
}

// selection flags shared by avail, plan and download
type selection struct {
	subjects    []string
	packages    []string
	destination string
	spec        string
	save        string
}

func parseSelection(name string, args []string, withDest bool) (*selection, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	var sel selection
	fs.StringSliceVarP(&sel.subjects, "subjects", "s", nil, "subject labels (comma separated or repeated)")
	fs.StringSliceVarP(&sel.packages, "packages", "p", nil, "package ids (comma separated or repeated)")
	if withDest {
		fs.StringVarP(&sel.destination, "destination", "d", "", "directory ascp downloads into")
		fs.StringVar(&sel.spec, "spec", "", "compile a saved transfer spec instead of asking the archive")
	}
	if name == "plan" {
		fs.StringVar(&sel.save, "save", "", "write the fetched transfer spec to this file")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if sel.spec == "" && len(sel.subjects) == 0 {
		return nil, errors.New("at least one subject is required (-s)")
	}
	return &sel, nil
}

func runConfig(g globalOpts, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		return g.print(utils.DescribeSettings())
	}
	if args[0] != "save" {
		return fmt.Errorf("config: unknown subcommand %q", args[0])
	}
	fs := pflag.NewFlagSet("config save", pflag.ContinueOnError)
	set := fs.StringToString("set", nil, "setting to change before saving (key=value, repeatable)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	for k, v := range *set {
		if err := utils.SetSetting(k, v); err != nil {
			return err
		}
	}
	path, err := utils.SaveCurrentEnvironment()
	if err != nil {
		return err
	}
	utils.Infof("Saved environment %s to %s", viper.GetString(utils.CurrentEnvironment), path)
	return g.print(utils.DescribeSettings())
}

func newPackagesService(ctx context.Context, conf config.Config) (*packages.PackagesService, error) {
	return packages.NewPackagesService(ctx, conf, utils.EnvLookup)
}

func runPackages(ctx context.Context, g globalOpts, conf config.Config) error {
	svc, err := newPackagesService(ctx, conf)
	if err != nil {
		return err
	}
	pkgs, err := svc.List(ctx)
	if err != nil {
		return err
	}
	return g.print(pkgs)
}

func runSubjects(ctx context.Context, g globalOpts, conf config.Config, args []string) error {
	fs := pflag.NewFlagSet("subjects", pflag.ContinueOnError)
	project := fs.String("project", "", "archive project id (e.g. HCP_1200)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc, err := archive.NewArchiveService(ctx, conf)
	if err != nil {
		return err
	}
	subjects, err := svc.ListSubjects(ctx, archive.ListRequest{Project: *project})
	if err != nil {
		return err
	}
	return g.print(subjects)
}

func runAvail(ctx context.Context, g globalOpts, conf config.Config, args []string) error {
	sel, err := parseSelection("avail", args, false)
	if err != nil {
		return err
	}
	svc, err := newPackagesService(ctx, conf)
	if err != nil {
		return err
	}
	doc, err := svc.ForSubjects(ctx, sel.subjects, sel.packages)
	if err != nil {
		return err
	}
	return g.print(doc)
}

func runPlan(ctx context.Context, g globalOpts, conf config.Config, args []string) error {
	sel, err := parseSelection("plan", args, true)
	if err != nil {
		return err
	}
	svc, err := newPackagesService(ctx, conf)
	if err != nil {
		return err
	}

	var (
		spec *aspera.TransferSpec
		argv []string
	)
	if sel.spec != "" {
		if spec, err = aspera.LoadSpecFile(sel.spec); err != nil {
			return err
		}
		if argv, err = svc.Compile(spec); err != nil {
			return err
		}
	} else {
		if spec, argv, err = svc.Plan(ctx, selectionRequest(sel)); err != nil {
			return err
		}
	}
	if sel.save != "" {
		if err := aspera.SaveSpecFile(sel.save, spec); err != nil {
			return err
		}
		utils.Infof("Transfer spec saved to %s", sel.save)
	}
	return g.print(map[string]any{
		"command":       aspera.CommandLine(argv),
		"files":         len(spec.Paths),
		"transfer_spec": spec.Masked(),
	})
}

func runDownload(ctx context.Context, g globalOpts, conf config.Config, args []string) error {
	sel, err := parseSelection("download", args, true)
	if err != nil {
		return err
	}
	svc, err := newPackagesService(ctx, conf)
	if err != nil {
		return err
	}

	var res *packages.DownloadResult
	if sel.spec != "" {
		spec, err := aspera.LoadSpecFile(sel.spec)
		if err != nil {
			return err
		}
		argv, err := svc.Compile(spec)
		if err != nil {
			return err
		}
		res, err = svc.Apply(ctx, spec, argv)
		if err != nil {
			return err
		}
	} else {
		res, err = svc.Download(ctx, selectionRequest(sel))
		if err != nil {
			return err
		}
	}
	return g.print(res)
}

func selectionRequest(sel *selection) packages.DownloadRequest {
	return packages.DownloadRequest{
		Subjects:    sel.subjects,
		Packages:    sel.packages,
		Destination: sel.destination,
	}
}

func runMirror(ctx context.Context, g globalOpts, conf config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("mirror: expected push or pull")
	}
	fs := pflag.NewFlagSet("mirror "+args[0], pflag.ContinueOnError)
	input := fs.StringP("input", "i", "", "local file or directory to push")
	bucket := fs.String("bucket", "", "bucket (defaults to s3_bucket)")
	prefix := fs.String("prefix", "packages", "key prefix for pushed data")
	url := fs.String("url", "", "s3:// URL to pull")
	dest := fs.StringP("destination", "d", "", "local directory to pull into")
	verbose := fs.BoolP("verbose", "v", false, "per-file progress")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	svc, err := mirror.NewMirrorService(ctx, conf)
	if err != nil {
		return err
	}
	switch args[0] {
	case "push":
		res, err := svc.Push(ctx, mirror.PushRequest{Input: *input, Bucket: *bucket, Prefix: *prefix, Verbose: *verbose})
		if err != nil {
			return err
		}
		return g.print(res)
	case "pull":
		files, err := svc.Pull(ctx, mirror.PullRequest{URL: *url, Destination: *dest, Verbose: *verbose})
		if err != nil {
			return err
		}
		return g.print(files)
	default:
		return fmt.Errorf("mirror: unknown subcommand %q", args[0])
	}
}
