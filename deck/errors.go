// SPDX-License-Identifier: EPL-2.0

package deck

import "errors"

var ErrNoTrack = errors.New("deck has no track loaded")
