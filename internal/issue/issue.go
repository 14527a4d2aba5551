// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	NextflowNotFoundId Id = iota + 1
	ConfigLoadFailedId
	UnknownProfileId
	EngineNotAvailableId
	MainScriptNotFoundId
	ScaffoldConflictId
	SubmitFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links shown under "See also"
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	nextflowNotFoundIssue = &Issue{
		id: NextflowNotFoundId,
		mdMsg: `
# Nextflow not found!

The cruise launcher could not find a nextflow executable in your PATH.

## Things you can try:
- Install Nextflow:
~~~
$ curl -s https://get.nextflow.io | bash
$ mv nextflow ~/bin/
~~~
- On an HPC system, load the module first:
~~~
$ module load nextflow
~~~
- Verify the installation:
~~~
$ nextflow -version
~~~`,
		docLinks: []HttpLink{"https://github.com/CCBR/CRUISE"},
		extLinks: []HttpLink{"https://www.nextflow.io/docs/latest/install.html"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file exists but could not be loaded.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Invalid values for known fields (e.g. a non-positive cpu count)

## Things you can try:
- Check the error message above for the specific field
- Show the canonical configuration for reference:
~~~
$ cruise config show
~~~
- Start over from the defaults:
~~~
$ cruise config init
~~~`,
		docLinks: []HttpLink{"https://github.com/CCBR/CRUISE"},
	}

	unknownProfileIssue = &Issue{
		id: UnknownProfileId,
		mdMsg: `
# Unknown profile!

The profile you selected has no declared override block.

## Declared profiles:
- **debug**: verbose process output for local troubleshooting
- **docker**: run every process in a Docker container
- **singularity**: run every process in a Singularity container

## Things you can try:
- List the declared profiles:
~~~
$ cruise config show
~~~
- Check for typos in the -profile selection
- Declare a site profile in your config.cue:
~~~cue
profiles: {
	"biowulf": {
		singularity: {enabled: true, auto_mounts: true}
	}
}
~~~`,
		docLinks: []HttpLink{"https://github.com/CCBR/CRUISE"},
	}

	engineNotAvailableIssue = &Issue{
		id: EngineNotAvailableId,
		mdMsg: `
# Container engine not available!

The selected profile needs a container engine that is not usable on this host.

## Things you can try:
- For the **docker** profile, install Docker and make sure the daemon is running:
~~~
$ docker version
~~~
- For the **singularity** profile, install Singularity or Apptainer:
~~~
$ singularity --version
~~~
- On an HPC system, load the module first:
~~~
$ module load singularity
~~~
- Or launch without a container profile:
~~~
$ cruise run --profile debug
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/get-docker/", "https://apptainer.org/docs/"},
	}

	mainScriptNotFoundIssue = &Issue{
		id: MainScriptNotFoundId,
		mdMsg: `
# Pipeline entry script not found!

The path given with --main does not exist.

## Things you can try:
- Point --main at a local main.nf:
~~~
$ cruise run --main path/to/CRUISE/main.nf
~~~
- Or run straight from GitHub with a tag, branch, or commit:
~~~
$ cruise run --main CCBR/CRUISE --revision v1.0.0
~~~
- Or use the copy installed next to the cruise binary (the default).`,
		docLinks: []HttpLink{"https://github.com/CCBR/CRUISE"},
	}

	scaffoldConflictIssue = &Issue{
		id: ScaffoldConflictId,
		mdMsg: `
# Working directory already initialized!

Some of the files 'cruise init' would create already exist.

## Things you can try:
- Keep the existing files and skip initialization
- Overwrite them with the shipped defaults:
~~~
$ cruise init --force
~~~
- Or initialize a fresh directory:
~~~
$ mkdir analysis && cd analysis && cruise init
~~~`,
	}

	submitFailedIssue = &Issue{
		id: SubmitFailedId,
		mdMsg: `
# Job submission failed!

The sbatch submission for slurm mode did not succeed.

## Things you can try:
- Check that you are on a cluster login node with sbatch in PATH:
~~~
$ which sbatch
~~~
- Inspect the generated jobscript before resubmitting:
~~~
$ cat submit_slurm.sh
~~~
- Or run the pipeline locally instead:
~~~
$ cruise run --mode local
~~~`,
	}

	issues = map[Id]*Issue{
		nextflowNotFoundIssue.Id():   nextflowNotFoundIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		unknownProfileIssue.Id():     unknownProfileIssue,
		engineNotAvailableIssue.Id(): engineNotAvailableIssue,
		mainScriptNotFoundIssue.Id(): mainScriptNotFoundIssue,
		scaffoldConflictIssue.Id():   scaffoldConflictIssue,
		submitFailedIssue.Id():       submitFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
