// Package pocket is a client for the authorization flow and item listing of
// the Pocket v3 API.
//
// The caller drives the flow:
//
//	client := pocket.NewClient(consumerKey)
//	requestToken, err := client.GetRequestToken(ctx, redirectURI)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Show this URL to the user and wait until they approved the app.
//	fmt.Println(client.GetAuthorizationURL(requestToken.Code, redirectURI))
//
//	access, err := client.Authorize(ctx, requestToken.Code)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	summaries, err := client.GetTagSummary(ctx, access.AccessToken)
//
// # Errors
//
// Operations fail with one of three types:
//
//   - *TransportError: the request could not be sent or its body read
//   - *DecodeError: non-2xx status or an unexpected body, the raw body is kept
//   - *RemoteError: Pocket reported an error inside a well-formed envelope
//
// Kind classifies an error, wrapped or not, into one of these.
package pocket
