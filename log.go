package sphinx

import "github.com/sirupsen/logrus"

// logLocal is the package-level logger, in the same shape as
// loopix-messaging's logging.PackageLogger(): used only on the
// construction/processing error paths, never on the hot success path.
var logLocal = logrus.WithField("pkg", "sphinx")
