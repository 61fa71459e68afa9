package kafka

// TopicPrefix namespaces every topic this backend produces so shared
// clusters can route and ACL them as a group.
const TopicPrefix = "gizmobuy"

// Topic builds a namespaced topic name from an aggregate domain and action,
// e.g. Topic("order", "paid") -> "gizmobuy.order.paid".
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
