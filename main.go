// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/lktool/lktool/cmd/lktool"

func main() {
	cmd.Execute()
}
