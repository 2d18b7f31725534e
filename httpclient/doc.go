// Package httpclient is the HTTP client used to talk to model sidecars.
//
// It resolves paths against a base URL, encodes JSON and multipart bodies,
// classifies non-2xx responses into typed errors and optionally retries
// retryable failures with the resilience package.
//
//	client, err := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8387"})
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/transcribe",
//	    Body: &httpclient.MultipartBody{
//	        Fields: map[string]string{"model": "base"},
//	        Files:  []httpclient.FileField{{FieldName: "audio", FileName: "audio.wav", Data: pcm}},
//	    },
//	})
//	out, err := httpclient.DecodeJSON[transcribeResponse](resp)
package httpclient
