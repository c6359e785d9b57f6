package notify

import (
	"fmt"

	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ChatLink is the client route of a transaction chat.
func ChatLink(chatID utils.SixID) string {
	return "/chat/" + chatID.String()
}

// ItemLink is the client route of an item page.
func ItemLink(itemID utils.SixID) string {
	return "/items/" + itemID.String()
}

// ItemSold tells the seller their item was bought.
func ItemSold(item *models.Item, buyer models.Actor, chatID utils.SixID) *models.Notification {
	return &models.Notification{
		UserID: item.SellerID,
		Type:   models.NotificationItemSold,
		Title:  "商品が購入されました",
		Body:   fmt.Sprintf("%sさんが「%s」を購入しました。取引画面で連絡を取りましょう。", buyer.Name(), item.Name),
		Link:   ChatLink(chatID),
	}
}

// PurchaseConfirmed tells the buyer the purchase went through.
func PurchaseConfirmed(item *models.Item, buyer models.Actor, chatID utils.SixID) *models.Notification {
	return &models.Notification{
		UserID: buyer.ID,
		Type:   models.NotificationPurchaseConfirmed,
		Title:  "購入が完了しました",
		Body:   fmt.Sprintf("「%s」の購入手続きが完了しました。", item.Name),
		Link:   ChatLink(chatID),
	}
}

// ReviewReceived tells the reviewed party about the review.
func ReviewReceived(review *models.Review) *models.Notification {
	return &models.Notification{
		UserID: review.TargetUserID,
		Type:   models.NotificationReviewReceived,
		Title:  "評価が届きました",
		Body:   fmt.Sprintf("%sさんが「%s」の取引を評価しました。", review.AuthorName, review.ItemName),
		Link:   ChatLink(review.ChatID),
	}
}

// CommentPosted tells the seller someone commented on their item.
func CommentPosted(item *models.Item, author models.Actor) *models.Notification {
	name := author.DisplayName
	if name == "" {
		name = "誰か"
	}
	return &models.Notification{
		UserID: item.SellerID,
		Type:   models.NotificationComment,
		Title:  "商品にコメントが届きました",
		Body:   fmt.Sprintf("%sさんが「%s」にコメントしました。", name, item.Name),
		Link:   ItemLink(item.ID),
	}
}

// MessageReceived tells the other party of a chat about a new message.
func MessageReceived(chat *models.Chat, sender models.Actor) *models.Notification {
	return &models.Notification{
		UserID: chat.Counterpart(sender.ID),
		Type:   models.NotificationMessage,
		Title:  "メッセージが届きました",
		Body:   fmt.Sprintf("「%s」の取引で%sさんからメッセージが届きました。", chat.ItemName, sender.Name()),
		Link:   ChatLink(chat.ID),
	}
}
