package orders

const TopicOrderCreated = "shop.order.created"
