package scaffold

// File templates for the authoritative plugin package layout. Text templates
// use {{name}} and {{description}} placeholders substituted by the scaffolder.

// installScriptTemplate is the per-plugin install.sh. It is a thin wrapper so
// scripted installs and direct rvn invocations share one implementation; the
// -u and -g flags pass straight through.
const installScriptTemplate = `#!/bin/bash
# Per-plugin installer. Delegates to rvn so scripted and direct installs
# behave identically.
#   (no flags)  install, CPU variant
#   -g          install, GPU variant
#   -u          uninstall (plugin artifact only)
#   -u -g       uninstall, GPU variant
set -e

DIR="$(cd "$(dirname "$0")" && pwd)"
FLAGS=""
while getopts "ug" opt; do
    case $opt in
        u) FLAGS="$FLAGS -u";;
        g) FLAGS="$FLAGS -g";;
        *) echo "usage: $0 [-u] [-g]" >&2; exit 2;;
    esac
done

exec rvn install "$(basename "$DIR")" $FLAGS
`

// setupTemplate registers the command group under the host's training
// entry-point group so the host CLI discovers the plugin.
const setupTemplate = `from setuptools import setup, find_packages

setup(
    name='{{name}}',
    version='0.1.0',
    description='{{description}}',
    packages=find_packages(),
    install_requires=[],
    entry_points={
        'raven.plugins.train': [
            '{{name}}={{name}}.core:{{name}}'
        ]
    }
)
`

// coreTemplate is the command-group skeleton plugin authors fill in. The
// training input is built by an explicit factory call inside the command
// body and handed to the handler as a plain parameter; the handler never
// depends on command-context magic.
const coreTemplate = `import click
from raven.train.options import kfold_opt
from raven.train.interfaces import TrainInput, TrainOutput


@click.group(help='{{description}}')
def {{name}}():
    pass


@{{name}}.command(help='Train a model.')
@kfold_opt
def train(kfold):
    # Construct the training input explicitly, at the call site.
    train_input = TrainInput()
    return run_training(train_input, kfold)


def run_training(train_input: TrainInput, kfold: bool) -> TrainOutput:
    # Fill in plugin-specific training here. Read everything you need from
    # train_input, perform training, and return a TrainOutput describing the
    # produced artifacts.
    raise NotImplementedError('{{name}} training is not implemented yet')
`

// cpuRequirementsTemplate is the authored CPU manifest stub
const cpuRequirementsTemplate = `# Direct CPU dependencies of {{name}}, one per line.
# Run "rvn compile {{name}}" after editing to regenerate requirements.txt.
`

// gpuRequirementsTemplate is the authored GPU manifest stub
const gpuRequirementsTemplate = `# Direct GPU dependencies of {{name}}, one per line.
# Run "rvn compile {{name}} -g" after editing to regenerate requirements-gui.txt.
`

// metadataTemplate is the optional plugin.yaml sidecar
const metadataTemplate = `name: {{name}}
version: 0.1.0
description: {{description}}
entry_point: {{name}}.core:{{name}}
`
