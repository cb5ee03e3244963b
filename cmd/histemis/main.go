/*
Copyright © 2024 the histemis authors.
This file is part of histemis.

histemis is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

histemis is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with histemis.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command histemis is a command-line interface for preparing harmonized
// national historical emissions.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/histemis/histemisutil"
)

func main() {
	if err := histemisutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
