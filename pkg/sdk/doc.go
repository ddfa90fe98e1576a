// Package econsult provides a Go client for the econsult medical search API.
//
// The client wraps the HTTP endpoints of the service: grounded search over
// the medical knowledge base, practice settings management, and health.
//
//	client := econsult.New("https://econsult.example.com",
//	    econsult.WithAPIKey(os.Getenv("ECONSULT_API_KEY")),
//	)
//	res, err := client.Search(ctx, "Wat kan ik doen tegen langdurige hoest?", "")
//	if err != nil {
//	    // errors.Is(err, econsult.ErrUnavailable) etc.
//	}
//	fmt.Println(res.Summary.Summary)
package econsult
