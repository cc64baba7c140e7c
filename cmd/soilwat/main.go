/*
Copyright © 2019 the SoilWat authors.
This file is part of SoilWat.

SoilWat is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SoilWat is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SoilWat.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command soilwat is a command-line interface for the SoilWat soil
// water and solute transport model.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/soilwat/soilwatutil"
)

func main() {
	if err := soilwatutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
