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

// Package hash creates cache keys for input data.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a hash key for the specified objects. Objects that cannot
// be gob-encoded (for example those holding NaN values) are hashed from
// their printed representation.
func Key(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		if err := gob.NewEncoder(h).Encode(o); err != nil {
			printer.Fprintf(h, "%#v", o)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// fileState is the part of a file's metadata that changes when the file
// is rewritten.
type fileState struct {
	Path    string
	Size    int64
	ModTime int64
}

// File returns a hash key for the file at path that changes whenever the
// file's size or modification time changes.
func File(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("hash: %v", err)
	}
	return Key(fileState{Path: path, Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}), nil
}
