package database

import "go.mongodb.org/mongo-driver/mongo"

// Collection names used by the stores.
const (
	PlansCollection         = "subscription_plans"
	SubscriptionsCollection = "user_subscriptions"
	SalesAgentsCollection   = "sales_agents"
	CommissionsCollection   = "commissions"
	UsersCollection         = "users"
)

func PlanCollection() *mongo.Collection         { return GetCollection(PlansCollection) }
func SubscriptionCollection() *mongo.Collection { return GetCollection(SubscriptionsCollection) }
func SalesAgentCollection() *mongo.Collection   { return GetCollection(SalesAgentsCollection) }
func CommissionCollection() *mongo.Collection   { return GetCollection(CommissionsCollection) }
func UserCollection() *mongo.Collection         { return GetCollection(UsersCollection) }
