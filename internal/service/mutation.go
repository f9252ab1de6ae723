package service

import (
	"context"

	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
)

// mutate 在事务中执行变更，fn 负责通过 commitAndPublish 提交；
// 未提交的事务在返回时回滚。调用方取消请求不会中断已开始的变更。
func mutate(ctx context.Context, repos *repository.Manager, fn func(tx *repository.Transaction) error) error {
	tx, err := repos.Begin(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if !tx.Done() {
			tx.Rollback()
		}
	}()

	return fn(tx)
}

// commitAndPublish 写入审计记录，然后由发布者在提交成功后广播事件
func commitAndPublish(tx *repository.Transaction, publisher Publisher, campaignID, actorID uint, events ...models.Event) error {
	for _, ev := range events {
		row, err := models.NewCampaignEvent(campaignID, actorID, ev)
		if err != nil {
			return err
		}
		if err := tx.Event().Create(tx.Context(), row); err != nil {
			return err
		}
	}
	return publisher.Publish(campaignID, tx.Commit, events...)
}
