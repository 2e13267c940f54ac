package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_keepassxc() {
    local cur prev words cword
    _init_completion || return

    local commands="init status ls show mkgroup add edit rm emptybin merge diff search passwd kdf compact keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        ls)
            COMPREPLY=($(compgen -W "-r" -- "$cur"))
            ;;
        show)
            COMPREPLY=($(compgen -W "-s" -- "$cur"))
            ;;
        add|edit)
            COMPREPLY=($(compgen -W "-title -username -url -notes -p" -- "$cur"))
            ;;
        rm)
            COMPREPLY=($(compgen -W "-p" -- "$cur"))
            ;;
        merge)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-mode -dry-run" -- "$cur"))
            else
                _filedir
            fi
            ;;
        diff)
            _filedir
            ;;
        kdf)
            COMPREPLY=($(compgen -W "-set -time -memory -threads -iterations" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _keepassxc keepassxc
`

const zshCompletion = `#compdef keepassxc

_keepassxc() {
    local -a commands
    commands=(
        'init:Create a new vault'
        'status:Show vault status without unlocking'
        'ls:List groups and entries'
        'show:Show a single entry'
        'mkgroup:Create a group'
        'add:Add an entry'
        'edit:Edit an entry'
        'rm:Remove an entry or group'
        'emptybin:Empty the recycle bin'
        'merge:Merge another copy of the vault'
        'diff:Compare with another copy of the vault'
        'search:Find entries by path'
        'passwd:Change vault password'
        'kdf:Show or change key derivation settings'
        'compact:Compact the vault container'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'keepassxc commands' commands
            ;;
        args)
            case "${words[2]}" in
                ls)
                    _arguments '-r[List recursively]'
                    ;;
                show)
                    _arguments '-s[Reveal the password]'
                    ;;
                rm)
                    _arguments '-p[Remove permanently, skip the recycle bin]'
                    ;;
                merge)
                    _arguments \
                        '-mode[Force a merge mode]' \
                        '-dry-run[Show changes without saving]' \
                        '*:vault file:_files'
                    ;;
                diff)
                    _arguments '*:vault file:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'keepassxc commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_keepassxc "$@"
`

const fishCompletion = `# keepassxc fish completions

set -l commands init status ls show mkgroup add edit rm emptybin merge diff search passwd kdf compact keyring help completion

complete -c keepassxc -f

# Commands
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new vault'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List groups and entries'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a show -d 'Show a single entry'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a mkgroup -d 'Create a group'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a add -d 'Add an entry'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a edit -d 'Edit an entry'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove an entry or group'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a emptybin -d 'Empty the recycle bin'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a merge -d 'Merge another copy'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with another copy'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a search -d 'Find entries'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change vault password'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a kdf -d 'Key derivation settings'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact the container'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c keepassxc -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# merge and diff take another vault file
complete -c keepassxc -n "__fish_seen_subcommand_from merge" -F
complete -c keepassxc -n "__fish_seen_subcommand_from merge" -o mode -d 'Force a merge mode' -a "duplicate keep-local keep-remote keep-newer synchronize"
complete -c keepassxc -n "__fish_seen_subcommand_from merge" -o dry-run -d 'Show changes without saving'
complete -c keepassxc -n "__fish_seen_subcommand_from diff" -F

# rm flags
complete -c keepassxc -n "__fish_seen_subcommand_from rm" -o p -d 'Remove permanently'

# keyring subcommands
complete -c keepassxc -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c keepassxc -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c keepassxc -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
