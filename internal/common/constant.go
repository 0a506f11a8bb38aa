package common

import "time"

// CSRFHeaderName is the request header the portal expects the anti-forgery
// token in for XHR-style POSTs.
const CSRFHeaderName = "X-CSRF-TOKEN"

// CSRFFieldName is the form field / meta name the portal renders its token under.
const CSRFFieldName = "_csrf"

// RequestTimeout bounds every single HTTP request made to the portal.
const RequestTimeout = 10 * time.Second
