// SPDX-License-Identifier: MPL-2.0

package main

import cmd "cruise-cli/cmd/cruise"

func main() {
	cmd.Execute()
}
