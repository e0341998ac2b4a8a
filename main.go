// Command autodocs counts the files of a repository
// checkout and keeps a tracked file_count file up to
// date through automated pull requests.
package main

import "github.com/Nemo-docs/autodocs/cmd"

func main() {
	cmd.Execute()
}
