package dynamo

// DynamoDB attribute names used in key, condition and filter expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail  = "email"
	fieldExpiry = "expiry"
)
