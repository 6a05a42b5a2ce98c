package notifxses

import "github.com/Abraxas-365/portal/pkg/errx"

var sesErrors = errx.NewRegistry("NOTIFX_SES")

var ErrSendFailed = sesErrors.Register("SEND_FAILED", errx.TypeInternal, "SES send email failed")
